package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "UniTrack Attendance API",
        "description": "University event and attendance tracking backend",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Events", "description": "Event lifecycle management"},
        {"name": "Attendance", "description": "Attendance marking and history"},
        {"name": "Statistics", "description": "Aggregated attendance views"},
        {"name": "Students", "description": "Student roster"},
        {"name": "Analytics", "description": "Cached dashboard aggregates"},
        {"name": "Reports", "description": "Attendance sheet exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate with email and password",
                "responses": {
                    "200": {"description": "Access token issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Authenticated caller's profile",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Profile"}}
            }
        },
        "/events": {
            "get": {
                "tags": ["Events"],
                "summary": "List events",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Events"}}
            },
            "post": {
                "tags": ["Events"],
                "summary": "Create a new event",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Event created"},
                    "409": {"description": "Duplicate event"}
                }
            }
        },
        "/events/{id}": {
            "get": {
                "tags": ["Events"],
                "summary": "Fetch one event",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Event"}}
            },
            "put": {
                "tags": ["Events"],
                "summary": "Update an event's details",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Event updated"}}
            },
            "delete": {
                "tags": ["Events"],
                "summary": "Delete an event with no attendance that has not started",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Event deleted"},
                    "409": {"description": "Precondition failed"}
                }
            }
        },
        "/events/{id}/status": {
            "patch": {
                "tags": ["Events"],
                "summary": "Apply an explicit lifecycle transition",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Status updated"},
                    "409": {"description": "Invalid transition"}
                }
            }
        },
        "/attendance/mark": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark attendance for a batch of students at one event",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Batch result with summary"},
                    "400": {"description": "Invalid marks or payload"},
                    "403": {"description": "Not the event owner"},
                    "409": {"description": "Event is cancelled"}
                }
            }
        },
        "/attendance/{id}": {
            "put": {
                "tags": ["Attendance"],
                "summary": "Update one attendance record",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Record updated"}}
            },
            "delete": {
                "tags": ["Attendance"],
                "summary": "Delete an attendance record within 24 hours of marking",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Record deleted"},
                    "409": {"description": "Window expired"}
                }
            }
        },
        "/attendance/event/{eventId}": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List attendance records for an event",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Records"}}
            }
        },
        "/attendance/event/{eventId}/statistics": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Attendance summary for one event",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Summary"}}
            }
        },
        "/attendance/student/{studentId}": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Student attendance history",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Records"}}
            }
        },
        "/attendance/student/{studentId}/statistics": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Attendance summary for one student",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Summary"}}
            }
        },
        "/attendance/faculty/statistics": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Attendance summary across the caller's events",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Summary"}}
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Students"}}
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Fetch one student",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Student"}}
            }
        },
        "/analytics/faculty": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Event counts and mean attendance rate",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Overview"}}
            }
        },
        "/analytics/system": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Runtime counter snapshot",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Metrics"}}
            }
        },
        "/reports/events/{eventId}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download an event's attendance sheet as CSV or PDF",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "File"}}
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
