package firestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashToken(t *testing.T) {
	a := hashToken("APA91bH-registration")
	assert.Len(t, a, 64)
	assert.Equal(t, a, hashToken("APA91bH-registration"))
	assert.NotEqual(t, a, hashToken("APA91bH-registration2"))
}
