package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return Parse(c)
}

func TestParseDefaults(t *testing.T) {
	p := paramsFor(t, "")
	if p.Page != DefaultPage || p.Limit != DefaultLimit || p.Offset != 0 {
		t.Errorf("defaults: got %+v", p)
	}
}

func TestParseClampsLimit(t *testing.T) {
	p := paramsFor(t, "page=3&limit=500")
	if p.Limit != MaxLimit {
		t.Errorf("limit = %d, want clamped to %d", p.Limit, MaxLimit)
	}
	if p.Offset != (3-1)*MaxLimit {
		t.Errorf("offset = %d", p.Offset)
	}
}

func TestParseRejectsNonPositive(t *testing.T) {
	p := paramsFor(t, "page=-1&limit=0")
	if p.Page != DefaultPage || p.Limit != DefaultLimit {
		t.Errorf("non-positive inputs: got %+v", p)
	}
}
