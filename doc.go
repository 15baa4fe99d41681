// Package govje publishes the Government of Jersey weather forecast to Home Assistant using MQTT device discovery.
//
// A Bridge turns the latest forecast.Report of a Source (usually a coordinator.Coordinator) into one Home Assistant
// device with a sensor per reading, a binary sensor for expected rain, and a number that sets how often the forecast
// is fetched.
package govje
