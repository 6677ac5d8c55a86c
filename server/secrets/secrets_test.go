package secrets

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSecretPayload(t *testing.T) {

	Convey("a good payload decodes", t, func() {
		payload := `{
			"KAFKA_BOOTSTRAP_SERVER": "broker1:9092,broker2:9092",
			"KAFKA_SASL_USERNAME": "svc-logship",
			"KAFKA_SASL_PASSWORD": "hunter2"
		}`
		sec, err := parseSecretPayload([]byte(payload))
		So(err, ShouldBeNil)
		So(sec.BootstrapServers, ShouldEqual, "broker1:9092,broker2:9092")
		So(sec.SASLUsername, ShouldEqual, "svc-logship")
		So(sec.SASLPassword, ShouldEqual, "hunter2")
	})

	Convey("junk is rejected", t, func() {
		_, err := parseSecretPayload([]byte("not json at all"))
		So(err, ShouldNotBeNil)
	})

	Convey("a payload without a bootstrap server is rejected", t, func() {
		_, err := parseSecretPayload([]byte(`{"KAFKA_SASL_USERNAME": "u"}`))
		So(err, ShouldNotBeNil)
	})
}
