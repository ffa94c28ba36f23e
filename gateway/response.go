package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

func checkStatus(resp *Response) error {
	if resp.StatusCode != http.StatusOK {
		return &Error{Kind: KindUnavailable, StatusCode: resp.StatusCode}
	}
	return nil
}

// DecodeJSON validates the status, parses the body and surfaces a non-zero
// errorCode as a KindRejected error. Numbers stay json.Number.
func DecodeJSON(resp *Response) (map[string]any, error) {
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(resp.Body))
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, &Error{Kind: KindMalformed, StatusCode: resp.StatusCode, Err: err}
	}
	if body == nil {
		return nil, &Error{Kind: KindMalformed, StatusCode: resp.StatusCode, Err: fmt.Errorf("empty json body")}
	}

	if code := codeString(body["errorCode"]); code != "" && code != "0" {
		return nil, &Error{
			Kind:       KindRejected,
			StatusCode: resp.StatusCode,
			Code:       code,
			Message:    codeString(body["errorMessage"]),
		}
	}
	return body, nil
}

// DecodeXML validates the status and converts the XML body with ParseXML.
func DecodeXML(resp *Response) (map[string]any, error) {
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	body, err := ParseXML(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, &Error{Kind: KindMalformed, StatusCode: resp.StatusCode, Err: err}
	}
	return body, nil
}

// ResultCode reads Result/Code and Result/Description from an XML service
// answer and reports a non-zero code as a KindRejected error.
func ResultCode(body map[string]any) error {
	result, ok := body["Result"].(map[string]any)
	if !ok {
		return nil
	}
	code := codeString(result["Code"])
	if code == "" || code == "0" {
		return nil
	}
	return &Error{
		Kind:       KindRejected,
		StatusCode: http.StatusOK,
		Code:       code,
		Message:    codeString(result["Description"]),
	}
}

func codeString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(c)
	case json.Number:
		return c.String()
	default:
		return strings.TrimSpace(fmt.Sprint(c))
	}
}
