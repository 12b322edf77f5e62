package forecast

// Units is the concentration unit of every reported pollutant.
const Units = "µg/m³"

// Prediction is the response for one location. Field names on the wire are
// kept from the original public API.
type Prediction struct {
	Year  int     `json:"anio"`
	PM25  float64 `json:"pm25"`
	PM10  float64 `json:"pm10"`
	NO2   float64 `json:"no2"`
	Units string  `json:"unidades"`
}
