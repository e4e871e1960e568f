package iconsvc

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/segmentio/encoding/json"
)

// EventObjectFinalize is the Cloud Storage notification sent when an object upload completes.
const EventObjectFinalize = "OBJECT_FINALIZE"

// PushEnvelope is the body of a Pub/Sub push subscription request.
type PushEnvelope struct {
	Message struct {
		Attributes map[string]string `json:"attributes"`
		MessageID  string            `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// ObjectEvent is the only event shape the pipeline reacts to.
type ObjectEvent struct {
	Type   string
	Bucket string
	Key    string
}

// DecodeEvent decode a push envelope into ObjectEvent. ok is false on any shape mismatch.
func DecodeEvent(body []byte) (event ObjectEvent, ok bool) {
	var env PushEnvelope
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&env); err != nil {
		return ObjectEvent{}, false
	}

	attrs := env.Message.Attributes
	event = ObjectEvent{
		Type:   attrs["eventType"],
		Bucket: attrs["bucketId"],
		Key:    attrs["objectId"],
	}

	if event.Type == "" || event.Bucket == "" || event.Key == "" {
		return ObjectEvent{}, false
	}

	return event, true
}

// stagingKey is where a client uploads a new icon of appID.
func stagingKey(prefix, appID string) string {
	return joinKey(prefix, appID, "upload.png")
}

// appIDFromStagingKey resolve {appId} from {prefix}/{appId}/upload.png.
func appIDFromStagingKey(prefix, key string) (appID string, ok bool) {
	rest := key
	if prefix != "" {
		p := strings.Trim(prefix, "/") + "/"
		if !strings.HasPrefix(key, p) {
			return "", false
		}

		rest = strings.TrimPrefix(key, p)
	}

	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "upload.png" {
		return "", false
	}

	return parts[0], true
}

func joinKey(prefix string, parts ...string) string {
	all := make([]string, 0, len(parts)+1)
	if p := strings.Trim(prefix, "/"); p != "" {
		all = append(all, p)
	}

	all = append(all, parts...)
	return strings.Join(all, "/")
}

func (e ObjectEvent) String() string {
	return fmt.Sprintf("%s gs://%s/%s", e.Type, e.Bucket, e.Key)
}
