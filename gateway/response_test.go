package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		body, err := DecodeJSON(&Response{StatusCode: http.StatusOK, Body: []byte(`{"invoiceID":"f3a1","errorCode":null}`)})
		require.NoError(t, err)
		assert.Equal(t, "f3a1", body["invoiceID"])
	})

	t.Run("ZeroErrorCode", func(t *testing.T) {
		body, err := DecodeJSON(&Response{StatusCode: http.StatusOK, Body: []byte(`{"invoiceID":"f3a1","errorCode":0}`)})
		require.NoError(t, err)
		assert.Equal(t, json.Number("0"), body["errorCode"])
	})

	t.Run("Rejected", func(t *testing.T) {
		_, err := DecodeJSON(&Response{
			StatusCode: http.StatusOK,
			Body:       []byte(`{"errorCode":33,"errorMessage":"Invalid signature"}`),
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRejected)

		var gwErr *Error
		require.True(t, errors.As(err, &gwErr))
		assert.Equal(t, "33", gwErr.Code)
		assert.Equal(t, "Invalid signature", gwErr.Message)
		assert.Equal(t, "robokassa: error code: 33, error message: Invalid signature", err.Error())
	})

	t.Run("Unavailable", func(t *testing.T) {
		_, err := DecodeJSON(&Response{StatusCode: http.StatusServiceUnavailable, Body: []byte("down")})
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.NotErrorIs(t, err, ErrRejected)
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := DecodeJSON(&Response{StatusCode: http.StatusOK, Body: []byte(`<html>`)})
		assert.ErrorIs(t, err, ErrMalformed)

		_, err = DecodeJSON(&Response{StatusCode: http.StatusOK, Body: []byte(`null`)})
		assert.ErrorIs(t, err, ErrMalformed)
	})
}

func TestDecodeXML(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		body, err := DecodeXML(&Response{StatusCode: http.StatusOK, Body: []byte(`<R><Result><Code>0</Code></Result></R>`)})
		require.NoError(t, err)
		assert.NoError(t, ResultCode(body))
	})

	t.Run("Unavailable", func(t *testing.T) {
		_, err := DecodeXML(&Response{StatusCode: http.StatusInternalServerError})
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := DecodeXML(&Response{StatusCode: http.StatusOK, Body: []byte(`<R><open></R>`)})
		assert.ErrorIs(t, err, ErrMalformed)

		_, err = DecodeXML(&Response{StatusCode: http.StatusOK, Body: []byte(``)})
		assert.ErrorIs(t, err, ErrMalformed)
	})
}

func TestResultCode(t *testing.T) {
	assert.NoError(t, ResultCode(map[string]any{}))
	assert.NoError(t, ResultCode(map[string]any{"Result": map[string]any{"Code": "0"}}))

	err := ResultCode(map[string]any{"Result": map[string]any{"Code": "2", "Description": "Unknown merchant"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "Unknown merchant")
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "unavailable", KindUnavailable.String())
	assert.Equal(t, "rejected", KindRejected.String())
	assert.Equal(t, "malformed", KindMalformed.String())
	assert.Equal(t, "unknown", ErrorKind(0).String())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := &Error{Kind: KindMalformed, Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, &Error{})
	assert.Equal(t, "robokassa: malformed response: unexpected EOF", err.Error())
}
