package server

// Response is the envelope for plain endpoints that do not define
// their own payload shape.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
