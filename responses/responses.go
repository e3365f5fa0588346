package responses

// Reply is the envelope around every response body, e.g: {"reply": <data>}
type Reply struct {
	Reply interface{} `json:"reply"`
}
