package annotations

import "github.com/tailored-agentic-units/annotations/observability"

// Store event types.
const (
	EventEditStart     observability.EventType = "annotations.edit.start"
	EventEditCancel    observability.EventType = "annotations.edit.cancel"
	EventSave          observability.EventType = "annotations.save"
	EventExport        observability.EventType = "annotations.export"
	EventRemove        observability.EventType = "annotations.remove"
	EventSubFeature    observability.EventType = "annotations.subfeature"
	EventFinalized     observability.EventType = "annotations.finalized"
	EventDesync        observability.EventType = "annotations.desync"
	EventInvalid       observability.EventType = "annotations.invalid"
	EventLayerUpdate   observability.EventType = "layer.update"
	EventLayerRemove   observability.EventType = "layer.remove"
	EventNotification  observability.EventType = "annotations.notification"
	EventCommandFailed observability.EventType = "annotations.command.failed"
)
