package config

import "github.com/i474232898/airquality-forecast/internal/airquality"

// DefaultLocations is the curated set of representative coordinates (capital
// or largest city) queried for the global AQI snapshot.
var DefaultLocations = []airquality.Location{
	{Country: "EC", Latitude: -0.18, Longitude: -78.47},  // Quito
	{Country: "CO", Latitude: 4.71, Longitude: -74.07},   // Bogotá
	{Country: "PE", Latitude: -12.05, Longitude: -77.04}, // Lima
	{Country: "BR", Latitude: -23.55, Longitude: -46.63}, // São Paulo
	{Country: "AR", Latitude: -34.60, Longitude: -58.38}, // Buenos Aires
	{Country: "CL", Latitude: -33.45, Longitude: -70.67}, // Santiago
	{Country: "MX", Latitude: 19.43, Longitude: -99.13},  // Mexico City
	{Country: "US", Latitude: 40.71, Longitude: -74.01},  // New York
	{Country: "CA", Latitude: 43.65, Longitude: -79.38},  // Toronto
	{Country: "GB", Latitude: 51.51, Longitude: -0.13},   // London
	{Country: "FR", Latitude: 48.86, Longitude: 2.35},    // Paris
	{Country: "DE", Latitude: 52.52, Longitude: 13.40},   // Berlin
	{Country: "ES", Latitude: 40.42, Longitude: -3.70},   // Madrid
	{Country: "IT", Latitude: 41.90, Longitude: 12.50},   // Rome
	{Country: "RU", Latitude: 55.76, Longitude: 37.62},   // Moscow
	{Country: "TR", Latitude: 41.01, Longitude: 28.98},   // Istanbul
	{Country: "EG", Latitude: 30.04, Longitude: 31.24},   // Cairo
	{Country: "NG", Latitude: 6.52, Longitude: 3.38},     // Lagos
	{Country: "ZA", Latitude: -26.20, Longitude: 28.05},  // Johannesburg
	{Country: "IN", Latitude: 28.61, Longitude: 77.21},   // New Delhi
	{Country: "CN", Latitude: 39.90, Longitude: 116.41},  // Beijing
	{Country: "JP", Latitude: 35.68, Longitude: 139.69},  // Tokyo
	{Country: "KR", Latitude: 37.57, Longitude: 126.98},  // Seoul
	{Country: "ID", Latitude: -6.21, Longitude: 106.85},  // Jakarta
	{Country: "AU", Latitude: -33.87, Longitude: 151.21}, // Sydney
}
