package telemetry

// Span names and attribute keys shared by the instrumented services.
const (
	SpanNavigate     = "navigation.compute"
	SpanSensorUpdate = "session.update"
	SpanBestQueue    = "queue.best"
	SpanPublishState = "nats.publish_state"

	AttrTargetMode = "target.mode"
	AttrDistance   = "distance_m"
	AttrVisible    = "visible"
	AttrSession    = "session.id"
	AttrSensorKind = "sensor.kind"
)
