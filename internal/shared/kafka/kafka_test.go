package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, Brokers(" a:9092, b:9092 ,"))
	assert.Equal(t, []string{"localhost:9092"}, Brokers("localhost:9092"))
	assert.Empty(t, Brokers(""))
}
