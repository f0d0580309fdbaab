// Package httpapi exposes the connection manager and table gateways over
// HTTP using huma on a chi router.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/jadedragon942/dorm/logging"
	"github.com/jadedragon942/dorm/object"
	"github.com/jadedragon942/dorm/orm"
	"github.com/jadedragon942/dorm/querylang"
	"github.com/jadedragon942/dorm/schema"
)

type Service struct {
	mgr    *orm.Manager
	logger *zap.Logger
}

func NewService(mgr *orm.Manager, logger *zap.Logger) *Service {
	return &Service{mgr: mgr, logger: logging.OrNop(logger).Named("httpapi")}
}

// NewRouter builds the chi router with the API mounted under /api.
func NewRouter(s *Service) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logging.RequestLogger(s.logger))
	router.Use(middleware.Recoverer)

	api := humachi.New(router, huma.DefaultConfig("dorm", "1.0.0"))
	api.OpenAPI().Info.Description = "Dynamic CRUD over any table of a connected relational database"
	Register(api, s)
	return router
}

func Register(api huma.API, s *Service) {
	huma.Post(api, "/api/connect", s.Connect)
	huma.Post(api, "/api/disconnect", s.Disconnect)
	huma.Post(api, "/api/query", s.Query)
	huma.Post(api, "/api/eval", s.Eval)
	huma.Get(api, "/api/tables", s.Tables)
	huma.Get(api, "/health", s.Health)
}

type ConnectInput struct {
	Body struct {
		ConnectionURL string `json:"connectionUrl" required:"false" doc:"Connection descriptor (URL or driver DSN)"`
		Engine        string `json:"engine,omitempty" doc:"Dialect name; the server default when empty"`
	}
}

type ConnectOutput struct {
	Body struct {
		Tables  []string                       `json:"tables" doc:"Base tables of the default schema"`
		Schemas map[string][]schema.ColumnData `json:"schemas" doc:"Columns per table in catalog order"`
	}
}

func (s *Service) Connect(ctx context.Context, input *ConnectInput) (*ConnectOutput, error) {
	if input.Body.ConnectionURL == "" {
		return nil, huma.Error400BadRequest("connectionUrl is required")
	}

	var err error
	if input.Body.Engine == "" {
		_, err = s.mgr.Connect(ctx, input.Body.ConnectionURL)
	} else {
		_, err = s.mgr.ConnectEngine(ctx, input.Body.Engine, input.Body.ConnectionURL)
	}
	if err != nil {
		return nil, s.statusError("connect", err)
	}

	snap, err := s.mgr.Snapshot(ctx)
	if err != nil {
		return nil, s.statusError("connect", err)
	}

	resp := &ConnectOutput{}
	resp.Body.Tables = snap.TableNames()
	resp.Body.Schemas = make(map[string][]schema.ColumnData, len(resp.Body.Tables))
	for _, name := range resp.Body.Tables {
		table, _ := snap.GetTable(name)
		resp.Body.Schemas[name] = table.Columns()
	}
	return resp, nil
}

type MessageOutput struct {
	Body struct {
		Message string `json:"message" example:"Disconnected successfully"`
	}
}

func (s *Service) Disconnect(ctx context.Context, input *struct{}) (*MessageOutput, error) {
	if err := s.mgr.Disconnect(ctx); err != nil {
		return nil, s.statusError("disconnect", err)
	}
	resp := &MessageOutput{}
	resp.Body.Message = "Disconnected successfully"
	return resp, nil
}

type QueryInput struct {
	Body struct {
		Table     string    `json:"table" required:"false"`
		Operation string    `json:"operation" required:"false" doc:"findAll, findById, create, update or delete"`
		Data      rawRecord `json:"data,omitempty"`
		ID        any       `json:"id,omitempty" doc:"Row id for findById, update and delete"`
	}
}

// rawRecord keeps the request's data member undecoded so the record is
// built with its original key order.
type rawRecord []byte

func (r *rawRecord) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

func (rawRecord) Schema(huma.Registry) *huma.Schema {
	return &huma.Schema{Description: "Record for create and update"}
}

type ResultOutput struct {
	Body struct {
		Result any `json:"result" doc:"A row, a list of rows, or null when the row does not exist"`
	}
}

func (s *Service) Query(ctx context.Context, input *QueryInput) (*ResultOutput, error) {
	var payload *object.Object
	if len(input.Body.Data) > 0 && string(input.Body.Data) != "null" {
		payload = object.New()
		if err := json.Unmarshal([]byte(input.Body.Data), payload); err != nil {
			return nil, huma.Error400BadRequest("data must be a JSON object", err)
		}
	}
	return s.execute(ctx, input.Body.Table, orm.Operation(input.Body.Operation), payload, normalizeID(input.Body.ID))
}

type EvalInput struct {
	Body struct {
		Query string `json:"query" required:"false" example:"users.findById(1)"`
	}
}

func (s *Service) Eval(ctx context.Context, input *EvalInput) (*ResultOutput, error) {
	cmd, err := querylang.Parse(input.Body.Query)
	if err != nil {
		return nil, s.statusError("eval", err)
	}
	return s.execute(ctx, cmd.Table, cmd.Operation, cmd.Payload, cmd.ID)
}

func (s *Service) execute(ctx context.Context, table string, op orm.Operation, payload *object.Object, id any) (*ResultOutput, error) {
	result, err := orm.Execute(ctx, s.mgr, table, op, payload, id)
	if err != nil {
		return nil, s.statusError(string(op), err)
	}
	resp := &ResultOutput{}
	resp.Body.Result = result
	return resp, nil
}

type TablesOutput struct {
	Body struct {
		Tables []string `json:"tables"`
	}
}

func (s *Service) Tables(ctx context.Context, input *struct{}) (*TablesOutput, error) {
	tables, err := s.mgr.ListTables(ctx)
	if err != nil {
		return nil, s.statusError("tables", err)
	}
	if tables == nil {
		tables = []string{}
	}
	resp := &TablesOutput{}
	resp.Body.Tables = tables
	return resp, nil
}

type HealthOutput struct {
	Body struct {
		Status    string `json:"status" example:"ok" doc:"Health status"`
		Engine    string `json:"engine" example:"postgres" doc:"Default dialect"`
		Connected bool   `json:"connected" doc:"Whether a pool is live"`
	}
}

func (s *Service) Health(ctx context.Context, input *struct{}) (*HealthOutput, error) {
	resp := &HealthOutput{}
	resp.Body.Status = "ok"
	resp.Body.Engine = s.mgr.Engine()
	resp.Body.Connected = s.mgr.CurrentPool() != nil
	return resp, nil
}

// statusError maps a core error to 400 for caller mistakes and 500 for
// everything else.
func (s *Service) statusError(op string, err error) error {
	var (
		syntaxErr *querylang.SyntaxError
		dataErr   *querylang.DataError
	)
	if orm.IsClientError(err) || errors.As(err, &syntaxErr) || errors.As(err, &dataErr) {
		return huma.Error400BadRequest(err.Error())
	}
	s.logger.Error("Request failed",
		zap.String("op", op),
		zap.String("error", logging.SanitizeError(err)))
	return huma.Error500InternalServerError(err.Error())
}

// normalizeID turns integral JSON numbers into int64 so they bind as
// integers.
func normalizeID(id any) any {
	f, ok := id.(float64)
	if !ok || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return id
	}
	return int64(f)
}
