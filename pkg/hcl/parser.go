package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/leowmjw/go-temporal-eventstream/pkg/gti"
	"github.com/leowmjw/go-temporal-eventstream/pkg/temporal"
)

// HCLPipeline represents the HCL pipeline structure
type HCLPipeline struct {
	StreamID string         `hcl:"stream_id"`
	MJDRef   *float64       `hcl:"mjdref,optional"`
	DT       *float64       `hcl:"dt,optional"`
	Meta     *hcl.Attribute `hcl:"meta,optional"`
	GTIs     []HCLInterval  `hcl:"gti,block"`
	Steps    []HCLStep      `hcl:"step,block"`
}

// HCLInterval represents one good time interval block
type HCLInterval struct {
	Start float64 `hcl:"start"`
	End   float64 `hcl:"end"`
}

// HCLStep represents a single pipeline step block. The label becomes
// the step ID; type selects the operation.
type HCLStep struct {
	Label       string      `hcl:"label,label"`
	Type        string      `hcl:"type"`
	Column      *string     `hcl:"column,optional"`
	Lo          *float64    `hcl:"lo,optional"`
	Hi          *float64    `hcl:"hi,optional"`
	UsePI       *bool       `hcl:"use_pi,optional"`
	Mask        []bool      `hcl:"mask,optional"`
	Deadtime    *float64    `hcl:"deadtime,optional"`
	Paralyzable *bool       `hcl:"paralyzable,optional"`
	Delta       *float64    `hcl:"delta,optional"`
	MJDRef      *float64    `hcl:"mjdref,optional"`
	Other       *string     `hcl:"other,optional"`
	DT          *float64    `hcl:"dt,optional"`
	Rows        [][]float64 `hcl:"rows,optional"`
	Seed        *int64      `hcl:"seed,optional"`
}

// ParsePipeline parses HCL content and converts it to a temporal.PipelineRequest
func ParsePipeline(hclContent string) (*temporal.PipelineRequest, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL([]byte(hclContent), "pipeline.hcl")

	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}

	evalCtx := pipelineEvalContext()

	var hclPipeline HCLPipeline
	diags = gohcl.DecodeBody(file.Body, evalCtx, &hclPipeline)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL body: %s", diags.Error())
	}

	return convertHCLPipeline(&hclPipeline, evalCtx)
}

// pipelineEvalContext provides the helper functions available inside
// pipeline files. days(x) converts days to seconds, so GTI bounds and
// shift deltas can be written in either unit.
func pipelineEvalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{},
		Functions: map[string]function.Function{
			"days": function.New(&function.Spec{
				Params: []function.Parameter{
					{
						Name: "days",
						Type: cty.Number,
					},
				},
				Type: function.StaticReturnType(cty.Number),
				Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
					d, _ := args[0].AsBigFloat().Float64()
					return cty.NumberFloatVal(d * 86400.0), nil
				},
			}),
		},
	}
}

// convertHCLPipeline converts the decoded HCL structures to a temporal.PipelineRequest
func convertHCLPipeline(hclPipeline *HCLPipeline, evalCtx *hcl.EvalContext) (*temporal.PipelineRequest, error) {
	request := &temporal.PipelineRequest{
		StreamID: hclPipeline.StreamID,
		Steps:    make([]temporal.PipelineStep, 0, len(hclPipeline.Steps)),
	}

	if hclPipeline.MJDRef != nil {
		request.MJDRef = *hclPipeline.MJDRef
	}
	if hclPipeline.DT != nil {
		request.DT = *hclPipeline.DT
	}

	// Parse meta if it exists
	if hclPipeline.Meta != nil {
		metaVal, diags := hclPipeline.Meta.Expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to evaluate meta: %s", diags.Error())
		}
		request.Meta = hclValueToMap(metaVal)
	}

	// Collect and validate the good time intervals
	for _, iv := range hclPipeline.GTIs {
		request.GTI = append(request.GTI, gti.Interval{Start: iv.Start, End: iv.End})
	}
	if len(request.GTI) > 0 {
		request.GTI = request.GTI.Sorted()
		if err := gti.Check(request.GTI); err != nil {
			return nil, fmt.Errorf("invalid gti blocks: %w", err)
		}
	}

	// Parse steps
	for _, hclStep := range hclPipeline.Steps {
		step := temporal.PipelineStep{
			ID:   hclStep.Label,
			Type: hclStep.Type,
		}

		if hclStep.Column != nil {
			step.Column = *hclStep.Column
		}
		if hclStep.Lo != nil {
			step.Lo = *hclStep.Lo
		}
		if hclStep.Hi != nil {
			step.Hi = *hclStep.Hi
		}
		if hclStep.UsePI != nil {
			step.UsePI = *hclStep.UsePI
		}
		if len(hclStep.Mask) > 0 {
			step.Mask = hclStep.Mask
		}
		if hclStep.Deadtime != nil {
			step.Deadtime = *hclStep.Deadtime
		}
		if hclStep.Paralyzable != nil {
			step.Paralyzable = *hclStep.Paralyzable
		}
		if hclStep.Delta != nil {
			step.Delta = *hclStep.Delta
		}
		if hclStep.MJDRef != nil {
			step.MJDRef = *hclStep.MJDRef
		}
		if hclStep.Other != nil {
			step.Other = *hclStep.Other
		}
		if hclStep.DT != nil {
			step.DT = *hclStep.DT
		}
		if len(hclStep.Rows) > 0 {
			step.Rows = hclStep.Rows
		}
		if hclStep.Seed != nil {
			step.Seed = *hclStep.Seed
		}

		request.Steps = append(request.Steps, step)
	}

	return request, nil
}

// hclValueToMap converts a cty.Value (HCL's type system) to a Go map[string]interface{}
func hclValueToMap(val cty.Value) map[string]interface{} {
	if val.IsNull() {
		return nil
	}

	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil
	}

	result := make(map[string]interface{})
	for key, attr := range val.AsValueMap() {
		result[key] = hclValueToInterface(attr)
	}

	return result
}

// hclValueToInterface converts a cty.Value to a Go interface{}
func hclValueToInterface(val cty.Value) interface{} {
	if val.IsNull() {
		return nil
	}

	switch {
	case val.Type() == cty.String:
		return val.AsString()
	case val.Type() == cty.Number:
		// Convert to float64 for consistency
		f, _ := val.AsBigFloat().Float64()
		return f
	case val.Type() == cty.Bool:
		return val.True()
	case val.Type().IsObjectType() || val.Type().IsMapType():
		return hclValueToMap(val)
	case val.Type().IsListType() || val.Type().IsTupleType():
		values := val.AsValueSlice()
		result := make([]interface{}, len(values))
		for i, v := range values {
			result[i] = hclValueToInterface(v)
		}
		return result
	default:
		// For complex types, return string representation
		return val.AsString()
	}
}

// IsHCL attempts to detect if the given content is in HCL format
func IsHCL(content []byte) bool {
	_, err := hclsyntax.ParseConfig(content, "", hcl.Pos{Line: 1, Column: 1})
	return err == nil
}
