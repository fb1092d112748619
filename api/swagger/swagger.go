package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Family Contact API",
        "description": "Contact scheduling and session lifecycle service for children in care.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Authentication and session tokens"},
        {"name": "Family Members", "description": "Family member registry"},
        {"name": "Contact Schedules", "description": "Recurring contact arrangements"},
        {"name": "Contact Sessions", "description": "Individual contact session lifecycle"},
        {"name": "Risk Assessments", "description": "Contact risk assessment tracking"},
        {"name": "Statistics", "description": "Organization-wide contact activity roll-up"},
        {"name": "Exports", "description": "Asynchronous contact log exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate with email and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange a refresh token for a new token pair",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Revoke the active refresh token",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/family-members": {
            "get": {
                "tags": ["Family Members"],
                "summary": "List family members",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "childId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "relationship", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Family Members"],
                "summary": "Register a family member against a child",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterFamilyMemberRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Child not found"}
                }
            }
        },
        "/family-members/expired-dbs-checks": {
            "get": {
                "tags": ["Family Members"],
                "summary": "List members whose background checks have lapsed",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/family-members/{id}": {
            "get": {
                "tags": ["Family Members"],
                "summary": "Fetch a family member",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "patch": {
                "tags": ["Family Members"],
                "summary": "Update a family member",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules": {
            "get": {
                "tags": ["Contact Schedules"],
                "summary": "List active schedules for a child",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "childId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Contact Schedules"],
                "summary": "Create a recurring contact schedule",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateContactScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Contact not permitted with this family member"}
                }
            }
        },
        "/schedules/due-for-review": {
            "get": {
                "tags": ["Contact Schedules"],
                "summary": "List schedules whose review date has passed",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{id}": {
            "get": {
                "tags": ["Contact Schedules"],
                "summary": "Fetch a contact schedule",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/schedules/{id}/suspend": {
            "put": {
                "tags": ["Contact Schedules"],
                "summary": "Suspend an active schedule",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SuspendScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Schedule has ended"}
                }
            }
        },
        "/schedules/{id}/review": {
            "put": {
                "tags": ["Contact Schedules"],
                "summary": "Mark a schedule as reviewed",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions": {
            "get": {
                "tags": ["Contact Sessions"],
                "summary": "List contact sessions",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "childId", "in": "query", "type": "string"},
                    {"name": "familyMemberId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "dateFrom", "in": "query", "type": "string", "format": "date"},
                    {"name": "dateTo", "in": "query", "type": "string", "format": "date"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Contact Sessions"],
                "summary": "Schedule a contact session",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleContactSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Linked schedule is not active"}
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "tags": ["Contact Sessions"],
                "summary": "Fetch a contact session",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/sessions/{id}/complete": {
            "put": {
                "tags": ["Contact Sessions"],
                "summary": "Record the outcome of a session",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CompleteContactSessionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Session is already completed or cancelled"}
                }
            }
        },
        "/sessions/{id}/cancel": {
            "put": {
                "tags": ["Contact Sessions"],
                "summary": "Cancel a scheduled session",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CancelContactSessionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Session is already completed or cancelled"}
                }
            }
        },
        "/risk-assessments": {
            "post": {
                "tags": ["Risk Assessments"],
                "summary": "Create a contact risk assessment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateRiskAssessmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/risk-assessments/current": {
            "get": {
                "tags": ["Risk Assessments"],
                "summary": "Fetch the current approved assessment for a child and family member",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "childId", "in": "query", "required": true, "type": "string"},
                    {"name": "familyMemberId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No current assessment"}
                }
            }
        },
        "/risk-assessments/overdue": {
            "get": {
                "tags": ["Risk Assessments"],
                "summary": "List assessments past their review date",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/risk-assessments/{id}": {
            "get": {
                "tags": ["Risk Assessments"],
                "summary": "Fetch a risk assessment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/risk-assessments/{id}/approve": {
            "put": {
                "tags": ["Risk Assessments"],
                "summary": "Approve a pending assessment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ApproveRiskAssessmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Requires manager or admin role"},
                    "412": {"description": "Assessment is already approved or was rejected"}
                }
            }
        },
        "/statistics": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Contact activity roll-up for the caller's organization",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/contact-log": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a contact log export for a child",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ContactLogExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Poll an export job, returns a signed download URL when finished",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export using a signed token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "401": {"description": "Token invalid or expired"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RegisterFamilyMemberRequest": {
            "type": "object",
            "properties": {
                "child_id": {"type": "string"},
                "full_name": {"type": "string"},
                "relationship": {"type": "string"},
                "restriction_level": {"type": "string"},
                "phone": {"type": "string"},
                "email": {"type": "string"},
                "dbs_check_required": {"type": "boolean"},
                "dbs_check_date": {"type": "string", "format": "date-time"},
                "dbs_check_expiry": {"type": "string", "format": "date-time"},
                "notes": {"type": "string"}
            },
            "required": ["child_id", "full_name", "relationship"]
        },
        "CreateContactScheduleRequest": {
            "type": "object",
            "properties": {
                "child_id": {"type": "string"},
                "family_member_id": {"type": "string"},
                "contact_type": {"type": "string"},
                "frequency": {"type": "string"},
                "supervision_required": {"type": "boolean"},
                "duration_minutes": {"type": "integer"},
                "start_date": {"type": "string", "format": "date-time"},
                "venue": {"type": "string"},
                "notes": {"type": "string"}
            },
            "required": ["child_id", "family_member_id", "contact_type", "frequency", "duration_minutes", "start_date"]
        },
        "SuspendScheduleRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            },
            "required": ["reason"]
        },
        "ScheduleContactSessionRequest": {
            "type": "object",
            "properties": {
                "child_id": {"type": "string"},
                "family_member_id": {"type": "string"},
                "contact_schedule_id": {"type": "string"},
                "session_date": {"type": "string", "format": "date-time"},
                "planned_start_time": {"type": "string", "example": "14:00"},
                "planned_end_time": {"type": "string", "example": "15:30"},
                "venue": {"type": "string"}
            },
            "required": ["child_id", "family_member_id", "session_date", "planned_start_time", "planned_end_time"]
        },
        "CompleteContactSessionRequest": {
            "type": "object",
            "properties": {
                "actual_start_time": {"type": "string", "example": "14:05"},
                "actual_end_time": {"type": "string", "example": "15:20"},
                "child_attended": {"type": "boolean"},
                "family_member_attended": {"type": "boolean"},
                "interaction_quality": {"type": "string"},
                "assessment": {"type": "string"}
            },
            "required": ["actual_start_time", "actual_end_time"]
        },
        "CancelContactSessionRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"},
                "rescheduled": {"type": "boolean"},
                "rescheduled_date": {"type": "string", "format": "date-time"}
            },
            "required": ["reason"]
        },
        "CreateRiskAssessmentRequest": {
            "type": "object",
            "properties": {
                "child_id": {"type": "string"},
                "family_member_id": {"type": "string"},
                "assessment_date": {"type": "string", "format": "date-time"},
                "assessed_by_name": {"type": "string"},
                "assessed_by_role": {"type": "string"},
                "overall_risk_level": {"type": "string"},
                "risk_summary": {"type": "string"},
                "identified_risks": {"type": "array", "items": {"type": "string"}},
                "mitigation_strategies": {"type": "array", "items": {"type": "string"}},
                "contact_recommended": {"type": "boolean"},
                "recommendation_rationale": {"type": "string"}
            },
            "required": ["child_id", "family_member_id", "assessment_date", "assessed_by_name", "assessed_by_role", "overall_risk_level", "risk_summary"]
        },
        "ApproveRiskAssessmentRequest": {
            "type": "object",
            "properties": {
                "approved_by_name": {"type": "string"},
                "comments": {"type": "string"}
            },
            "required": ["approved_by_name"]
        },
        "ContactLogExportRequest": {
            "type": "object",
            "properties": {
                "child_id": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf"]},
                "date_from": {"type": "string", "format": "date-time"},
                "date_to": {"type": "string", "format": "date-time"}
            },
            "required": ["child_id", "format"]
        },
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
