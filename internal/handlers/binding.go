package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var errEmptyBody = errors.New("request body is required")

// BindNestedOrFlat decodes the JSON body into obj. Clients may wrap the payload
// under key ({"income": {...}}) or send it flat; a present key always wins.
// The decoded struct is then run through gin's validator so `binding` tags apply.
// The body is restored afterwards for later readers.
func BindNestedOrFlat(c *gin.Context, key string, obj any) error {
	if c.Request.Body == nil {
		return errEmptyBody
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	if len(bytes.TrimSpace(body)) == 0 {
		return errEmptyBody
	}

	payload := body
	var envelope map[string]json.RawMessage
	if json.Unmarshal(body, &envelope) == nil {
		if nested, ok := envelope[key]; ok {
			payload = nested
		}
	}

	if err := json.Unmarshal(payload, obj); err != nil {
		return err
	}
	if binding.Validator == nil {
		return nil
	}
	return binding.Validator.ValidateStruct(obj)
}
