package models

type PolicyType string

const (
	PolicyDroughtProtection  PolicyType = "drought_protection"
	PolicyFloodInsurance     PolicyType = "flood_insurance"
	PolicyHurricaneCoverage  PolicyType = "hurricane_coverage"
	PolicyWildfireProtection PolicyType = "wildfire_protection"
)

// PolicyTypeFromSelector maps the wire-encoded policy type byte.
func PolicyTypeFromSelector(b byte) (PolicyType, bool) {
	switch b {
	case 0:
		return PolicyDroughtProtection, true
	case 1:
		return PolicyFloodInsurance, true
	case 2:
		return PolicyHurricaneCoverage, true
	case 3:
		return PolicyWildfireProtection, true
	default:
		return "", false
	}
}

type PolicyStatus string

const (
	PolicyInactive  PolicyStatus = "inactive"
	PolicyActive    PolicyStatus = "active"
	PolicyTriggered PolicyStatus = "triggered"
	PolicyPaidOut   PolicyStatus = "paid_out"
	PolicyExpired   PolicyStatus = "expired"
)

type ClimateDataType string

const (
	DataTemperature   ClimateDataType = "temperature"
	DataRainfall      ClimateDataType = "rainfall"
	DataWindSpeed     ClimateDataType = "wind_speed"
	DataHumidity      ClimateDataType = "humidity"
	DataPressure      ClimateDataType = "pressure"
	DataWaterLevel    ClimateDataType = "water_level"
	DataFireProximity ClimateDataType = "fire_proximity"
)

type OracleType string

const (
	OracleWeatherStation OracleType = "weather_station"
	OracleSatellite      OracleType = "satellite"
	OracleAggregator     OracleType = "aggregator"
)
