package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"samilabs.app/pulse/internal/http/router"
	"samilabs.app/pulse/internal/model"
	"samilabs.app/pulse/internal/pipeline"
	"samilabs.app/pulse/internal/service"
	"samilabs.app/pulse/internal/source"
)

type echoInvoker struct{}

func (echoInvoker) Analyze(_ context.Context, turns []model.Turn, mode model.AnalysisMode) (*model.AnalysisResult, error) {
	return &model.AnalysisResult{Mode: mode, Raw: fmt.Sprintf("seen %d turns", len(turns))}, nil
}

var _ = Describe("SetupRoutes", func() {
	var engine *gin.Engine

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		engine = gin.New()

		orchestrator := pipeline.NewOrchestrator([]source.Adapter{source.NewSample()}, pipeline.Config{MinYield: 5})
		router.SetupRoutes(engine, service.NewServices(service.ServicesConfig{
			Aggregator: orchestrator,
			Invoker:    echoInvoker{},
			WindowSize: 6,
		}))
	})

	serve := func(method, path string, body []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewReader(body))
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	It("exports csv", func() {
		w := serve(http.MethodPost, "/api/v1/mentions/export", []byte(`{"entity":"Acme","limit":2}`))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(HavePrefix("content,source,date,url\n"))
	})

	It("serves health", func() {
		Expect(serve(http.MethodGet, "/health", nil).Code).To(Equal(http.StatusOK))
	})

	It("runs search through the sample adapter", func() {
		w := serve(http.MethodPost, "/api/v1/mentions/search", []byte(`{"entity":"Acme","limit":3}`))
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp struct {
			Mentions []struct {
				Source string `json:"source"`
			} `json:"mentions"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Mentions).To(HaveLen(3))
		Expect(resp.Mentions[0].Source).To(Equal("sample"))
	})

	It("runs a session end to end", func() {
		w := serve(http.MethodPost, "/api/v1/sessions", nil)
		Expect(w.Code).To(Equal(http.StatusCreated))
		var created struct {
			ID string `json:"session_id"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &created)).To(Succeed())

		w = serve(http.MethodPost, "/api/v1/sessions/"+created.ID+"/analyze", []byte(`{"entity":"Acme","limit":5}`))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"reply":"seen 2 turns"`))

		w = serve(http.MethodPost, "/api/v1/sessions/"+created.ID+"/ask", []byte(`{"question":"and the risks?"}`))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"reply":"seen 4 turns"`))

		w = serve(http.MethodGet, "/api/v1/sessions/"+created.ID, nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var snap struct {
			Turns []any `json:"turns"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &snap)).To(Succeed())
		Expect(snap.Turns).To(HaveLen(5))
	})
})
