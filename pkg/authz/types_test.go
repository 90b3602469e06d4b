package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRequest(t *testing.T) {
	req := NewRequest(" Technician ", "Asset.Create")
	assert.Equal(t, Request{Role: "technician", Object: "asset", Action: "create"}, req)

	req = NewRequest("", "asset")
	assert.Equal(t, Request{Role: RoleUser, Object: "asset", Action: "*"}, req)
}

func TestNormalizeAction(t *testing.T) {
	assert.Equal(t, "edit", NormalizeAction(" Edit "))
	assert.Equal(t, "*", NormalizeAction(""))
}
