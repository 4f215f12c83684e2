package errors

import "encoding/json"

type openaiErrorBody struct {
	Message string  `json:"message"`
	Type    string  `json:"type"`
	Param   *string `json:"param"`
	Code    *string `json:"code"`
}

// OpenAIEnvelope mirrors the OpenAI error envelope.
type OpenAIEnvelope struct {
	Error openaiErrorBody `json:"error"`
}

// ToJSON serializes the error into the OpenAI envelope. Empty code and param
// serialize as explicit JSON null, matching the official API.
func (e *APIError) ToJSON() ([]byte, error) {
	var env OpenAIEnvelope
	env.Error.Message = e.Message
	env.Error.Type = e.Type
	if e.Code != "" {
		code := e.Code
		env.Error.Code = &code
	}
	if e.Param != "" {
		param := e.Param
		env.Error.Param = &param
	}
	return json.Marshal(env)
}
