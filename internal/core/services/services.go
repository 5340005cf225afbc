package services

import (
	"model-registry-service/internal/core/ports/output"
)

// Services is everything one console session needs to talk to the registry.
type Services struct {
	Dispatcher  *Dispatcher
	Models      *RegisteredModelService
	Versions    *ModelVersionService
	Activities  *ActivityService
	Transitions *TransitionService
	Comments    *CommentService
	Serving     *ServingService
	Monitoring  *MonitoringService

	opts       Options
	visibility ports.Visibility
	navigator  ports.Navigator
	inst       Instrumentation
}

// Deps are the collaborators shared by every session.
type Deps struct {
	Registry        ports.RegistryClient
	KServe          ports.KServeClient
	Prometheus      ports.PrometheusClient
	Instrumentation Instrumentation
}

// Env is the browser-facing side of one session.
type Env struct {
	Visibility ports.Visibility
	Navigator  ports.Navigator
}

func NewServices(d *Dispatcher, deps Deps, env Env, opts Options) *Services {
	opts = opts.withDefaults()
	inst := deps.Instrumentation
	if inst == nil {
		inst = noInstrumentation{}
	}

	models := NewRegisteredModelService(deps.Registry, d)
	versions := NewModelVersionService(deps.Registry, d, opts.ArtifactTimeout)
	activities := NewActivityService(deps.Registry, d)
	transitions := NewTransitionService(deps.Registry, d, models, versions, activities, opts.Features)

	return &Services{
		Dispatcher:  d,
		Models:      models,
		Versions:    versions,
		Activities:  activities,
		Transitions: transitions,
		Comments:    NewCommentService(deps.Registry, d, activities),
		Serving:     NewServingService(deps.Registry, deps.KServe, deps.Prometheus, d, opts.Features),
		Monitoring:  NewMonitoringService(d, opts.Features, inst),
		opts:        opts,
		visibility:  env.Visibility,
		navigator:   env.Navigator,
		inst:        inst,
	}
}

func (s *Services) Features() Features {
	return s.opts.Features
}
