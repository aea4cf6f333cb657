package timeentry

import (
	"github.com/sirschrockalot/Timesheet-Service/internal/timeentry/entity"
	"github.com/sirschrockalot/Timesheet-Service/internal/validate"
)

// Per-operation validation schemas. Each schema is pure data; the
// generic evaluator in internal/validate does the work, so adding a
// field is a one-line change here.

var createSchema = validate.Schema{
	Body: []validate.Field{
		{Name: "userId", Rule: validate.Rule{Kind: validate.String, Required: true, NonEmpty: true}},
		{Name: "weekStart", Rule: validate.Rule{Kind: validate.Date, Required: true}},
		{Name: "weekEnd", Rule: validate.Rule{Kind: validate.Date, Required: true}},
		{Name: "hours", Rule: validate.Rule{Kind: validate.NumberList, Required: true, Len: 7, Min: 0, Max: 24, HasRange: true}},
		{Name: "notes", Rule: validate.Rule{Kind: validate.String, MaxLen: 1000, Default: ""}},
		{Name: "status", Rule: validate.Rule{Kind: validate.Enum, Enum: entity.Statuses, Default: entity.StatusDraft}},
		{Name: "submittedAt", Rule: validate.Rule{Kind: validate.Date}},
		{Name: "approvedAt", Rule: validate.Rule{Kind: validate.Date}},
		{Name: "approvedBy", Rule: validate.Rule{Kind: validate.String}},
	},
}

var updateSchema = validate.Schema{
	Body: []validate.Field{
		{Name: "userId", Rule: validate.Rule{Kind: validate.String, NonEmpty: true}},
		{Name: "weekStart", Rule: validate.Rule{Kind: validate.Date}},
		{Name: "weekEnd", Rule: validate.Rule{Kind: validate.Date}},
		{Name: "hours", Rule: validate.Rule{Kind: validate.NumberList, Len: 7, Min: 0, Max: 24, HasRange: true}},
		{Name: "notes", Rule: validate.Rule{Kind: validate.String, MaxLen: 1000}},
		{Name: "status", Rule: validate.Rule{Kind: validate.Enum, Enum: entity.Statuses}},
		{Name: "submittedAt", Rule: validate.Rule{Kind: validate.Date}},
		{Name: "approvedAt", Rule: validate.Rule{Kind: validate.Date}},
		{Name: "approvedBy", Rule: validate.Rule{Kind: validate.String}},
	},
	Params: []validate.Field{
		{Name: "id", Rule: validate.Rule{Kind: validate.String, Required: true, NonEmpty: true}},
	},
}

var byIDSchema = validate.Schema{
	Params: []validate.Field{
		{Name: "id", Rule: validate.Rule{Kind: validate.String, Required: true, NonEmpty: true}},
	},
}

var listSchema = validate.Schema{
	Query: []validate.Field{
		{Name: "userId", Rule: validate.Rule{Kind: validate.String}},
		{Name: "status", Rule: validate.Rule{Kind: validate.Enum, Enum: entity.Statuses}},
		{Name: "weekStart", Rule: validate.Rule{Kind: validate.Date}},
		{Name: "weekEnd", Rule: validate.Rule{Kind: validate.Date}},
		{Name: "limit", Rule: validate.Rule{Kind: validate.Int, Min: 1, Max: 100, HasRange: true, Default: 50}},
		{Name: "page", Rule: validate.Rule{Kind: validate.Int, Min: 1, HasRange: true, Default: 1}},
	},
}
