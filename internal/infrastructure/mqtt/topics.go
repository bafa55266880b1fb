package mqtt

// System status topic for the gateway's own availability.
//
// The topic sits outside the /devices namespace on purpose: the device
// tree carries controller facts only, and the topic codec treats anything
// else as foreign traffic.
const statusTopic = "/wirebus/system/status"

// StatusTopic returns the topic carrying the gateway's online/offline status.
// The payload is JSON with status, client_id and timestamp fields; the broker
// retains the last message so late subscribers see the current state.
func StatusTopic() string {
	return statusTopic
}
