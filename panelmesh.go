// Package panelmesh provides a high-level façade over the planner, memory,
// synthesizer and coordinator services enabling rapid construction of
// synthetic panel simulations. Most applications interact with this package
// by:
//  1. Creating a PanelMesh via New() (optionally overriding default in-memory services)
//  2. Creating an allocation plan from a research goal (CreatePlan)
//  3. Seeding agents from the plan and running question sessions (NewSession, RunSession)
//
// The façade delegates orchestration to coordinator.Coordinator while keeping
// setup and usage ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply durable
// store implementations (memory/badger), a real vector searcher
// (retrieval/weaviate) and a structured logger.
package panelmesh

import (
	"context"

	"github.com/panelmesh/panelmesh/coordinator"
	"github.com/panelmesh/panelmesh/core"
	"github.com/panelmesh/panelmesh/logging"
	"github.com/panelmesh/panelmesh/memory"
	"github.com/panelmesh/panelmesh/model"
	"github.com/panelmesh/panelmesh/planner"
	"github.com/panelmesh/panelmesh/registry"
	"github.com/panelmesh/panelmesh/retrieval"
	"github.com/panelmesh/panelmesh/session"
	"github.com/panelmesh/panelmesh/synthesizer"
)

// Options configures the PanelMesh instance.
type Options struct {
	// Stores (default to in-memory implementations if not provided).
	SessionStore core.SessionStore
	AnswerStore  core.AnswerStore
	EventLog     core.EventLog

	// Registry resolves agent profiles. Defaults to an in-memory registry;
	// deployments that manage profiles externally supply their own
	// implementation, which may be read-only.
	Registry core.AgentRegistry

	// Searcher backs the planner's retrieval sweep. Nil is valid: the
	// planner then generates plans from the goal alone.
	Searcher retrieval.Searcher

	// PlannerModel generates allocation plans. AnswerModel generates
	// in-character responses. They may be the same Generator.
	PlannerModel model.Generator
	AnswerModel  model.Generator

	// Tuning passthroughs for the underlying services.
	PlannerOptions     []func(o *planner.Options)
	SynthesizerOptions []func(o *synthesizer.Options)
	CoordinatorOptions []func(o *coordinator.Options)

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// PanelMesh is the high-level façade aggregating the underlying services.
type PanelMesh struct {
	opts     Options
	planner  *planner.Planner
	memory   *memory.Service
	coord    *coordinator.Coordinator
	sessions core.SessionStore
	answers  core.AnswerStore
	registry core.AgentRegistry
}

// RegistryWriter is the optional write surface of a registry. The façade's
// seeding helpers use it when the configured registry supports writes;
// registry.InMemoryRegistry implements it.
type RegistryWriter interface {
	Put(profile core.AgentProfile)
	SeedFromPlan(plan *core.AllocationPlan) []string
}

// New creates a new PanelMesh instance with optional overrides. Any unset
// store is initialized with an in-memory implementation. PlannerModel and
// AnswerModel default to a MockGenerator so that examples and tests run
// without network access; real deployments supply model/anthropic,
// model/openai or model/ollama generators.
func New(optFns ...func(o *Options)) *PanelMesh {
	store := session.NewInMemoryStore()
	opts := Options{
		SessionStore: store,
		AnswerStore:  store,
		EventLog:     memory.NewInMemoryEventLog(),
		Registry:     registry.NewInMemoryRegistry(),
		PlannerModel: model.NewMockGenerator(),
		AnswerModel:  model.NewMockGenerator(),
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	mem := memory.NewService(opts.EventLog)

	plannerOpts := append([]func(o *planner.Options){func(o *planner.Options) {
		o.Logger = opts.Logger
	}}, opts.PlannerOptions...)
	synthOpts := append([]func(o *synthesizer.Options){func(o *synthesizer.Options) {
		o.Logger = opts.Logger
	}}, opts.SynthesizerOptions...)
	coordOpts := append([]func(o *coordinator.Options){func(o *coordinator.Options) {
		o.Logger = opts.Logger
	}}, opts.CoordinatorOptions...)

	p := planner.New(opts.Searcher, opts.PlannerModel, plannerOpts...)
	synth := synthesizer.New(opts.AnswerModel, synthOpts...)
	coord := coordinator.New(opts.SessionStore, opts.AnswerStore, opts.Registry, mem, synth, coordOpts...)

	return &PanelMesh{
		opts:     opts,
		planner:  p,
		memory:   mem,
		coord:    coord,
		sessions: opts.SessionStore,
		answers:  opts.AnswerStore,
		registry: opts.Registry,
	}
}

// CreatePlan generates an allocation plan for the research goal, grounded in
// a retrieval sweep when a searcher is configured.
func (m *PanelMesh) CreatePlan(ctx context.Context, goal string, agentCount int, extraContext string) (*core.AllocationPlan, error) {
	return m.planner.CreatePlan(ctx, goal, agentCount, extraContext)
}

// SeedAgents registers one profile per planned panelist and returns the new
// agent ids, ready to be passed to NewSession. Returns nil when the
// configured registry does not implement RegistryWriter; such deployments
// create profiles through their own registry and pass the ids directly.
func (m *PanelMesh) SeedAgents(plan *core.AllocationPlan) []string {
	if w, ok := m.registry.(RegistryWriter); ok {
		return w.SeedFromPlan(plan)
	}
	return nil
}

// RegisterAgent adds an externally constructed profile to the panel. Reports
// whether the configured registry accepted the write.
func (m *PanelMesh) RegisterAgent(profile core.AgentProfile) bool {
	w, ok := m.registry.(RegistryWriter)
	if ok {
		w.Put(profile)
	}
	return ok
}

// NewSession creates a pending session over the questions and agents and
// persists it. Run it with RunSession.
func (m *PanelMesh) NewSession(questions, agentIDs []string) (*core.SimulationSession, error) {
	sess := core.NewSimulationSession(questions, agentIDs)
	if err := m.sessions.Create(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// RunSession executes the session's questions round by round. See
// coordinator.Coordinator.RunSession for the full semantics.
func (m *PanelMesh) RunSession(ctx context.Context, sessionID string) (coordinator.SessionResult, error) {
	return m.coord.RunSession(ctx, sessionID)
}

// CancelSession aborts an in-flight run. Returns false if no run is active.
func (m *PanelMesh) CancelSession(sessionID string) bool {
	return m.coord.Cancel(sessionID)
}

// Session returns the persisted session state.
func (m *PanelMesh) Session(sessionID string) (*core.SimulationSession, error) {
	return m.sessions.Get(sessionID)
}

// Answers returns all persisted answers for the session, across rounds.
func (m *PanelMesh) Answers(sessionID string) ([]core.AgentAnswer, error) {
	return m.answers.Answers(sessionID)
}

// RetrieveContext exposes the memory service's relevance-ranked history
// lookup, useful for inspecting what an agent "remembers".
func (m *PanelMesh) RetrieveContext(ctx context.Context, agentID, query string, topK int) ([]core.AgentEvent, error) {
	return m.memory.RetrieveContext(ctx, agentID, query, topK)
}
