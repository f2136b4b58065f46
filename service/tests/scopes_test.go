package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zlnvch/homegate/service"
)

func TestNormalizeScopes(t *testing.T) {
	assert.Equal(t, "store,db", service.NormalizeScopes("store,bogus,db"))
	assert.Equal(t, "home", service.NormalizeScopes("home"))
	assert.Equal(t, "db,store,home", service.NormalizeScopes("db,store,home"))
	assert.Equal(t, "", service.NormalizeScopes("admin,root"))
	assert.Equal(t, "", service.NormalizeScopes(""))
}

func TestHasScope(t *testing.T) {
	assert.True(t, service.HasScope("home,store", "store"))
	assert.False(t, service.HasScope("home,store", "db"))
	assert.False(t, service.HasScope("", "home"))
}
