package discovery

import (
	"strings"

	"github.com/govje/govje-weather/mqtt"
)

// Device and shared component fields
const (
	FieldDevice     = "dev"
	FieldOrigin     = "o"
	FieldComponents = "cmps"

	FieldBaseTopic       = "~"
	FieldPlatform        = "p"
	FieldName            = "name"
	FieldUniqueID        = "uniq_id"
	FieldDefaultEntityID = "def_ent_id"
	FieldEntityCategory  = "ent_cat"
	FieldIcon            = "ic"
	FieldDeviceClass     = "dev_cla"

	FieldStateTopic   = "stat_t"
	FieldCommandTopic = "cmd_t"

	FieldAvailabilityTopic = "avty_t"

	FieldQualityOfService = "qos"
)

// Sensor and binary sensor fields
const (
	FieldAttributesTopic   = "json_attr_t"
	FieldOptions           = "opts"
	FieldStateClass        = "stat_cla"
	FieldUnitOfMeasurement = "unit_of_meas"
)

// Number fields
const (
	FieldMin  = "min"
	FieldMax  = "max"
	FieldStep = "step"
	FieldMode = "mode"
)

const (
	// IDSep separates the parts of a generated device id and replaces characters not allowed in a topic level.
	IDSep = "__"
)

// IDSanitizer makes an arbitrary string safe to use as a single MQTT topic level.
var IDSanitizer = strings.NewReplacer(
	" ", IDSep,
	":", IDSep,
	".", IDSep,
	"!", IDSep,
	"?", IDSep,
	"+", IDSep,
	"#", IDSep,
	mqtt.TopicSeparator, IDSep,
)
