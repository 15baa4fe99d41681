package hass

// Condition is Home Assistant's fixed weather condition enumeration.
//
// See https://www.home-assistant.io/integrations/weather/#condition-mapping
type Condition string

const (
	ConditionClearNight     Condition = "clear-night"
	ConditionCloudy         Condition = "cloudy"
	ConditionFog            Condition = "fog"
	ConditionHail           Condition = "hail"
	ConditionLightning      Condition = "lightning"
	ConditionLightningRainy Condition = "lightning-rainy"
	ConditionPartlyCloudy   Condition = "partlycloudy"
	ConditionPouring        Condition = "pouring"
	ConditionRainy          Condition = "rainy"
	ConditionSnowy          Condition = "snowy"
	ConditionSnowyRainy     Condition = "snowy-rainy"
	ConditionSunny          Condition = "sunny"
	ConditionWindy          Condition = "windy"
	ConditionWindyVariant   Condition = "windy-variant"
	ConditionExceptional    Condition = "exceptional"
)

// Conditions lists every Condition in the order Home Assistant documents them.
var Conditions = []Condition{
	ConditionClearNight,
	ConditionCloudy,
	ConditionFog,
	ConditionHail,
	ConditionLightning,
	ConditionLightningRainy,
	ConditionPartlyCloudy,
	ConditionPouring,
	ConditionRainy,
	ConditionSnowy,
	ConditionSnowyRainy,
	ConditionSunny,
	ConditionWindy,
	ConditionWindyVariant,
	ConditionExceptional,
}
