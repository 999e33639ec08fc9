package assistant

import (
	"fmt"
	"strings"
)

// Fallback answers from local data by keyword when the remote model is
// unavailable. Keywords are checked in a fixed order and the first match
// wins.
func Fallback(message string, c Context) string {
	msg := strings.ToLower(message)

	switch {
	case containsAny(msg, "fastest", "quickest", "shortest"):
		if strings.Contains(c.Routes, "Duration") {
			return fmt.Sprintf("Based on your routes, the fastest option is typically the one with the lowest duration shown. Looking at your traffic conditions (%s), I'd recommend the route with the shortest time and lowest traffic level.", trafficSummary(c.TrafficData))
		}
		return "The fastest route typically depends on current traffic. Check the duration times listed for each route - routes with lower traffic levels will be more consistent. The lowest duration + low traffic is usually your best bet."

	case strings.Contains(msg, "traffic"):
		if c.TrafficData != "" {
			return fmt.Sprintf("Here's what I'm seeing with traffic: %s. Routes with low traffic will be more predictable and faster. If you have medium or heavy traffic routes, consider leaving earlier or choosing the low traffic alternative instead.", c.TrafficData)
		}
		return "Traffic conditions significantly impact travel time. Lighter traffic routes (low) are 20-30% faster than heavy traffic routes. If you see heavy traffic, try a different route or leaving at a different time."

	case containsAny(msg, "time", "depart", "when"):
		if c.BusSchedule != "" {
			return fmt.Sprintf("Based on your bus schedule (%s), you have several options. For your desired arrival time, I'd recommend choosing a bus that gives you a comfortable buffer. Check which departure time gets you to your destination close to when you need to arrive.", c.BusSchedule)
		}
		return "Check the bus schedule - departures typically run every 30 minutes. Choose a time that gives you a reasonable buffer before your desired arrival."

	case strings.Contains(msg, "route"):
		if c.Routes != "" {
			return "You have multiple routes available. The best one depends on your priorities: Duration (quickest), Traffic (most consistent), or CO2 (most eco-friendly). Each route shows these metrics - pick the one that matches your needs."
		}
		return "To find the best route, I compare travel time, current traffic conditions, and distance. Enter your destination to see multiple route options."

	case containsAny(msg, "bus", "transit"):
		if c.BusSchedule != "" {
			return fmt.Sprintf("The next GO Bus departures are: %s. Pick the one that aligns with your desired arrival time and leaves you with enough buffer.", c.BusSchedule)
		}
		return "GO Bus transit in the Greater Toronto Area typically runs from early morning until late evening with departures every 30 minutes on most routes."

	case containsAny(msg, "station", "destination", "where"):
		if c.Destination != "" {
			if c.Routes != "" {
				return fmt.Sprintf("Your destination is set to %s. I've found multiple routes to get you there - check the durations and traffic levels to pick the best option.", c.Destination)
			}
			return fmt.Sprintf("Your destination is set to %s. Enter your origin location to start finding routes.", c.Destination)
		}
		return "Which GO Bus station or transit hub are you heading to? I can help you find the best routes once you set your destination."

	case containsAny(msg, "co2", "carbon", "eco", "environment"):
		if strings.Contains(c.Routes, "CO2") {
			return "Looking at the CO2 emissions for your routes, you can see which options are most eco-friendly. Walking/cycling are zero-emission, while different transit modes have different carbon footprints. The more sustainable choice is usually clearly marked."
		}
		return "Different travel modes have different environmental impacts. Transit and cycling are much more eco-friendly than driving. Check the CO2 metrics for each route."
	}

	var b strings.Builder
	b.WriteString("I'm analyzing your trip options now. ")
	if c.TrafficData != "" {
		if strings.Contains(c.TrafficData, "Heavy: 0") {
			b.WriteString("Current traffic shows all clear routes with good conditions. ")
		} else {
			b.WriteString("Current traffic shows some traffic variations. ")
		}
	}
	if c.BusSchedule != "" {
		fmt.Fprintf(&b, "Available departures include: %s. ", c.BusSchedule)
	}
	if c.Routes != "" {
		b.WriteString("Choose the route that best matches your needs for speed, traffic consistency, or environmental impact.")
	} else {
		b.WriteString("Set your destination to find the best routes.")
	}
	return b.String()
}

func trafficSummary(traffic string) string {
	switch {
	case strings.Contains(traffic, "Low"):
		return "mostly low traffic"
	case strings.Contains(traffic, "Medium"):
		return "medium traffic"
	default:
		return "heavy traffic"
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
