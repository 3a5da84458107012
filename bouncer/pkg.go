package bouncer

import (
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/engine"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/statusstore"
)

type Engine = engine.Engine
type Evaluator = engine.Evaluator
type EvaluatorFactory = engine.EvaluatorFactory
type Deps = engine.Deps
type Base = engine.Base
type Verdict = engine.Verdict
type ClassificationSink = engine.ClassificationSink
type NullSink = engine.NullSink
type RecheckScheduler = engine.RecheckScheduler
type LinkFetchScheduler = engine.LinkFetchScheduler

type UserStatus = statusstore.UserStatus

var (
	NewBase = engine.NewBase

	StatusPending  = statusstore.StatusPending
	StatusBanned   = statusstore.StatusBanned
	StatusService  = statusstore.StatusService
	StatusOrganic  = statusstore.StatusOrganic
	StatusPurged   = statusstore.StatusPurged
	StatusRetired  = statusstore.StatusRetired
	StatusDeclined = statusstore.StatusDeclined
	StatusInactive = statusstore.StatusInactive
)
