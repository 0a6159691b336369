package outbox

const rosterChangedSchema = `{
  "type": "object",
  "title": "RosterChanged",
  "properties": {
    "event_id": {"type": "string"},
    "kind": {"type": "string", "enum": ["roster.signed_up", "roster.unregistered"]},
    "activity": {"type": "string"},
    "email": {"type": "string"},
    "roster_size": {"type": "integer", "minimum": 0},
    "capacity": {"type": "integer", "minimum": 1},
    "occurred_at": {"type": "string", "format": "date-time"},
    "version": {"type": "string"}
  },
  "required": ["event_id", "kind", "activity", "email", "roster_size", "capacity", "occurred_at", "version"],
  "additionalProperties": false
}`
