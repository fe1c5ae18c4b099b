package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"regulaqa/internal/corpus"
	"regulaqa/internal/handlers"
	"regulaqa/internal/vectorstore/mocks"
)

func testDeps(ctrl *gomock.Controller) *Deps {
	store := mocks.NewMockStore(ctrl)
	conn := mocks.NewMockConn(ctrl)
	store.EXPECT().Open(gomock.Any()).Return(conn, nil).AnyTimes()
	conn.EXPECT().CollectionExists(gomock.Any(), gomock.Any()).Return(false, nil).AnyTimes()
	conn.EXPECT().Close().Return(nil).AnyTimes()

	manager := corpus.NewManager(store, "test_documents", 1)
	return &Deps{
		Health:    handlers.NewHealthHandler(store, "test_documents", "test-model"),
		Documents: handlers.NewDocumentsHandler(manager, ""),
		Model:     handlers.NewModelHandler("test-model", "embed-model", 0.2),
	}
}

func TestRouterRoutes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router := NewRouter(testDeps(ctrl))

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
	}{
		{name: "health", method: "GET", target: "/api/health", wantStatus: http.StatusOK},
		{name: "model", method: "GET", target: "/api/model", wantStatus: http.StatusOK},
		{name: "documents list", method: "GET", target: "/api/documents", wantStatus: http.StatusOK},
		{name: "unknown route", method: "GET", target: "/api/nope", wantStatus: http.StatusNotFound},
		{name: "wrong method", method: "POST", target: "/api/health", wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.target, nil))
			if w.Code != tt.wantStatus {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.target, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router := NewRouter(testDeps(ctrl))

	req := httptest.NewRequest("OPTIONS", "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Error("missing Access-Control-Allow-Methods header")
	}
}

func TestRouterAddsCORSHeadersToResponses(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router := NewRouter(testDeps(ctrl))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/model", nil))

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
