package register

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealdesk/mealdesk-web/internal/notify"
	"github.com/mealdesk/mealdesk-web/internal/web/handler/handlertest"
)

func newEnv(t *testing.T, calls *atomic.Int32) *handlertest.Env {
	t.Helper()

	env := handlertest.New(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/api/auth/register", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		if body["email"] == "taken@example.com" {
			handlertest.WriteJSON(w, http.StatusConflict, map[string]any{"message": "User already exists"})

			return
		}

		assert.Equal(t, "Ann Example", body["fullName"])
		assert.Equal(t, "secret1", body["password"])
		handlertest.WriteJSON(w, http.StatusCreated, map[string]any{"success": true})
	})

	var s Service
	require.NoError(t, s.Init(env.App, env.Deps))

	return env
}

func TestGet(t *testing.T) {
	var calls atomic.Int32
	env := newEnv(t, &calls)

	resp := env.Do(t, http.MethodGet, Path, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	name, _ := env.Views.Last()
	assert.Equal(t, TemplateName, name)
}

func TestPostSuccessRedirectsToLogin(t *testing.T) {
	var calls atomic.Int32
	env := newEnv(t, &calls)

	resp := env.Do(t, http.MethodPost, Path, url.Values{
		"fullName":        {"Ann Example"},
		"email":           {"ann@example.com"},
		"password":        {"secret1"},
		"confirmPassword": {"secret1"},
	})

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get(fiber.HeaderLocation))
	assert.EqualValues(t, 1, calls.Load())

	msg, err := env.Deps.Flash.Pop(env.SID)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, notify.LevelInfo, msg.Level)
}

func TestPostErrors(t *testing.T) {
	tests := []struct {
		name  string
		form  url.Values
		want  string
		calls int32
	}{
		{
			name: "short password",
			form: url.Values{"fullName": {"Ann"}, "email": {"ann@example.com"}, "password": {"123"}},
			want: ErrInvalidFormData.Error(),
		},
		{
			name: "mismatch",
			form: url.Values{
				"fullName": {"Ann"}, "email": {"ann@example.com"},
				"password": {"secret1"}, "confirmPassword": {"secret2"},
			},
			want: ErrPasswordMismatch.Error(),
		},
		{
			name: "taken",
			form: url.Values{
				"fullName": {"Ann Example"}, "email": {"taken@example.com"}, "password": {"secret1"},
			},
			want:  "User already exists",
			calls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			env := newEnv(t, &calls)

			resp := env.Do(t, http.MethodPost, Path, tt.form)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)

			_, bind := env.Views.Last()
			assert.Equal(t, tt.want, bind["Error"])
			assert.Equal(t, tt.calls, calls.Load())
		})
	}
}
