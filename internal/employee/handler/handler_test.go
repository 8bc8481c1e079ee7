package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"empverify/internal/employee/models"
	"empverify/pkg/testutil"
)

func TestHandleListCompanies(t *testing.T) {
	r := chi.NewRouter()
	New(models.Companies, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)

	rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodGet, "/companies", nil))

	testutil.AssertStatus(t, rr, http.StatusOK)
	env := testutil.DecodeEnvelope[[]models.Company](t, rr)
	assert.True(t, env.Success)
	require.Len(t, env.Data, 2)
	assert.Equal(t, "TVSCSHIB", env.Data[0].ID)
	assert.Equal(t, "TVS Credit", env.Data[0].DisplayName)
}
