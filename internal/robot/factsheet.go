// internal/robot/factsheet.go
package robot

import (
	"agv-simulator/internal/action"
	"agv-simulator/internal/common/constants"
	"agv-simulator/internal/config"
	"agv-simulator/internal/models"
)

// action scope
const (
	scopeInstant = "INSTANT"
	scopeNode    = "NODE"
	scopeEdge    = "EDGE"
)

// actionInfo 팩트시트에 싣는 액션별 설명
type actionInfo struct {
	description string
	scopes      []string
	params      []models.FactsheetActionParam
	result      string
}

func param(key, dataType, description string, optional bool) models.FactsheetActionParam {
	return models.FactsheetActionParam{Key: key, ValueDataType: dataType, Description: description, IsOptional: optional}
}

var speedParam = param("speed", "FLOAT", "speed cap for the motion", true)

var actionCatalog = map[action.Type]actionInfo{
	action.TypeTranslation: {
		description: "straight move relative to the current heading",
		scopes:      []string{scopeInstant, scopeNode, scopeEdge},
		params:      []models.FactsheetActionParam{param("dx", "FLOAT", "forward offset in meters", true), param("dy", "FLOAT", "left offset in meters", true), speedParam},
	},
	action.TypeRotation: {
		description: "rotate in place",
		scopes:      []string{scopeInstant, scopeNode},
		params:      []models.FactsheetActionParam{param("theta", "FLOAT", "absolute target heading", true), param("angle", "FLOAT", "relative angle", true), speedParam},
	},
	action.TypeBezierMove: {
		description: "follow a bezier curve from the current pose",
		scopes:      []string{scopeInstant, scopeNode},
		params:      []models.FactsheetActionParam{param("controlPoints", "ARRAY", "list of {x, y}", false), speedParam},
	},
	action.TypePalletRotation: {
		description: "rotate the pallet unit",
		scopes:      []string{scopeInstant, scopeNode},
		params:      []models.FactsheetActionParam{param("theta", "FLOAT", "absolute pallet angle", true), param("angle", "FLOAT", "relative angle", true), speedParam},
	},
	action.TypeInitPosition: {
		description: "set the vehicle pose",
		scopes:      []string{scopeInstant},
		params: []models.FactsheetActionParam{
			param("x", "FLOAT", "", false), param("y", "FLOAT", "", false), param("theta", "FLOAT", "", true),
			param("mapId", "STRING", "", true), param("lastNodeId", "STRING", "", true),
		},
	},
	action.TypeStateRequest:     {description: "publish a state message", scopes: []string{scopeInstant}},
	action.TypeFactsheetRequest: {description: "publish the factsheet", scopes: []string{scopeInstant}},
	action.TypeCancelOrder:      {description: "cancel the active order", scopes: []string{scopeInstant}},
	action.TypePause:            {description: "pause order execution", scopes: []string{scopeInstant}},
	action.TypeResume:           {description: "resume order execution", scopes: []string{scopeInstant}},
	action.TypeMapUpload: {
		description: "install a map",
		scopes:      []string{scopeInstant},
		params:      []models.FactsheetActionParam{param("mapId", "STRING", "", false), param("mapVersion", "STRING", "", true)},
	},
	action.TypeMapDelete: {
		description: "remove an installed map",
		scopes:      []string{scopeInstant},
		params:      []models.FactsheetActionParam{param("mapId", "STRING", "", false)},
	},
	action.TypeWait: {
		description: "wait for a fixed time",
		scopes:      []string{scopeInstant, scopeNode, scopeEdge},
		params:      []models.FactsheetActionParam{param("duration", "FLOAT", "seconds", true)},
	},
	action.TypePick: {
		description: "pick up a load",
		scopes:      []string{scopeNode},
		params:      []models.FactsheetActionParam{param("loadId", "STRING", "", true)},
		result:      "load added to the loads list",
	},
	action.TypeDrop: {
		description: "drop a load",
		scopes:      []string{scopeNode},
		params:      []models.FactsheetActionParam{param("loadId", "STRING", "", true)},
		result:      "load removed from the loads list",
	},
	action.TypeStartCharging: {description: "start charging", scopes: []string{scopeInstant, scopeNode}},
	action.TypeStopCharging:  {description: "stop charging", scopes: []string{scopeInstant, scopeNode}},
}

// FactsheetBuilder 설정과 지원 액션 목록으로 factsheet 본문을 만든다
type FactsheetBuilder struct {
	cfg *config.Config
}

// NewFactsheetBuilder 새 빌더
func NewFactsheetBuilder(cfg *config.Config) *FactsheetBuilder {
	return &FactsheetBuilder{cfg: cfg}
}

// Factsheet 헤더는 발행하는 쪽에서 채운다
func (b *FactsheetBuilder) Factsheet() models.FactsheetMessage {
	cfg := b.cfg
	blocking := []string{constants.BlockingTypeNone, constants.BlockingTypeSoft, constants.BlockingTypeHard}

	actions := make([]models.AgvAction, 0, len(actionCatalog))
	for _, t := range action.Types() {
		info, ok := actionCatalog[t]
		if !ok {
			continue
		}
		actions = append(actions, models.AgvAction{
			ActionType:        t.String(),
			ActionDescription: info.description,
			ActionScopes:      info.scopes,
			ActionParameters:  info.params,
			ResultDescription: info.result,
			BlockingTypes:     blocking,
		})
	}

	return models.FactsheetMessage{
		TypeSpecification: models.TypeSpecification{
			SeriesName:        "agvsim",
			SeriesDescription: "simulated VDA5050 vehicle",
			AgvKinematic:      "OMNI",
			AgvClass:          "FORKLIFT",
			MaxLoadMass:       1000,
			LocalizationTypes: []string{"NATURAL"},
			NavigationTypes:   []string{"VIRTUAL_LINE_GUIDED"},
		},
		PhysicalParameters: models.PhysicalParameters{
			SpeedMin:        0,
			SpeedMax:        cfg.Speed,
			AngularSpeedMax: cfg.AngularSpeed,
			AccelerationMax: cfg.Speed,
			DecelerationMax: cfg.Speed,
			HeightMax:       2,
			Width:           1,
			Length:          1.5,
		},
		ProtocolLimits: models.ProtocolLimits{
			MaxStringLens: models.MaxStringLens{IDNumericalOnly: false},
			MaxArrayLens:  models.MaxArrayLens{},
			Timing: models.Timing{
				MinOrderInterval:      cfg.TickPeriod.Seconds(),
				MinStateInterval:      cfg.TickPeriod.Seconds(),
				DefaultStateInterval:  cfg.StateInterval().Seconds(),
				VisualizationInterval: cfg.VisualizationInterval().Seconds(),
			},
		},
		ProtocolFeatures: models.ProtocolFeatures{
			OptionalParameters: []models.OptionalParameter{
				{Parameter: "order.nodes.nodePosition", Support: "SUPPORTED", Description: "resolved from the map when omitted"},
				{Parameter: "order.edges.trajectory", Support: "SUPPORTED", Description: "control points of a bezier edge"},
				{Parameter: "order.edges.maxSpeed", Support: "SUPPORTED"},
			},
			AgvActions: actions,
		},
	}
}
