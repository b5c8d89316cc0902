package mongostore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsTransactionUnsupported(t *testing.T) {
	standalone := mongo.CommandError{Code: codeIllegalOperation, Name: "IllegalOperation"}

	assert.True(t, isTransactionUnsupported(standalone))
	assert.True(t, isTransactionUnsupported(fmt.Errorf("delete listing: %w", standalone)))

	assert.False(t, isTransactionUnsupported(nil))
	assert.False(t, isTransactionUnsupported(mongo.CommandError{Code: 11000}))
	assert.False(t, isTransactionUnsupported(fmt.Errorf("wrapped: %w", mongo.CommandError{Code: 251})))
	assert.False(t, isTransactionUnsupported(errors.New("IllegalOperation")))
}
