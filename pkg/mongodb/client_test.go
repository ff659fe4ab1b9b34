package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewClient_RequiresURI(t *testing.T) {
	_, err := NewClient(context.Background(), WithTimeout(time.Second))
	assert.EqualError(t, err, "uri is required")
}

func TestNewClient_InvalidURI(t *testing.T) {
	_, err := NewClient(context.Background(), WithURI("not-a-mongo-uri"))
	assert.Error(t, err)
}
