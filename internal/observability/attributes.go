// Package observability provides metrics and logging utilities.
package observability

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrEventType = "event_type"
	attrOp        = "op"
	attrSuccess   = "success"
)

func methodAttr(method string) attribute.KeyValue {
	return attribute.String(attrMethod, method)
}

func pathAttr(path string) attribute.KeyValue {
	// Normalize paths with IDs to reduce cardinality
	// /v1/projects/abc123 -> /v1/projects/{projectId}
	return attribute.String(attrPath, normalizePath(path))
}

func statusAttr(code int) attribute.KeyValue {
	// Group status codes to reduce cardinality
	// 200-299 -> 2xx, 400-499 -> 4xx, 500-599 -> 5xx
	group := fmt.Sprintf("%dxx", code/100)
	return attribute.String(attrStatus, group)
}

func eventTypeAttr(eventType string) attribute.KeyValue {
	return attribute.String(attrEventType, eventType)
}

func opAttr(op string) attribute.KeyValue {
	return attribute.String(attrOp, op)
}

func successAttr(success bool) attribute.KeyValue {
	return attribute.Bool(attrSuccess, success)
}

// normalizePath replaces dynamic path segments with placeholders.
func normalizePath(path string) string {
	const prefix = "/v1/projects/"
	if len(path) > len(prefix) && path[:len(prefix)] == prefix {
		rest := path[len(prefix):]
		for i := 0; i < len(rest); i++ {
			if rest[i] == '/' {
				return prefix + "{projectId}" + rest[i:]
			}
		}
		return prefix + "{projectId}"
	}
	return path
}
