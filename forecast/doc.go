// Package forecast models the Government of Jersey forecast feed, fetches it, and maps its vendor strings (tooltips,
// compass points, Beaufort forces, temperatures, day names) onto the values Home Assistant understands.
package forecast
