package types

import "github.com/google/uuid"

type RequestID string

const EmptyRequestID RequestID = ""

func NewRequestID() RequestID {
	return RequestID(uuid.NewString())
}
