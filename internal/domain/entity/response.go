package entity

// ResponseKind is the interaction callback type sent back to the platform.
type ResponseKind int

const (
	ResponsePong           ResponseKind = 1
	ResponseEphemeral      ResponseKind = 4 // channel message with source, visible to the actor only
	ResponseDeferredUpdate ResponseKind = 6
)

// InteractionResponse is the synchronous answer to an interaction.
type InteractionResponse struct {
	Kind    ResponseKind
	Message *OutboundMessage // set for ResponseEphemeral only
}

// PongResponse acknowledges a Ping.
func PongResponse() InteractionResponse {
	return InteractionResponse{Kind: ResponsePong}
}

// DeferredUpdateResponse acknowledges a click without changing the clicked message.
func DeferredUpdateResponse() InteractionResponse {
	return InteractionResponse{Kind: ResponseDeferredUpdate}
}

// EphemeralResponse answers with a notice only the actor sees. It mentions nobody.
func EphemeralResponse(text string) InteractionResponse {
	return InteractionResponse{
		Kind:    ResponseEphemeral,
		Message: &OutboundMessage{Content: text},
	}
}
