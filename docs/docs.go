// Package docs Swagger 文档（swag 生成格式，注释变更后需重新生成）
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/status": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "description": "返回缓存状态；尚无缓存时读取一次设备",
                "produces": ["application/json"],
                "tags": ["状态"],
                "summary": "当前功放状态",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/amp.Status"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/api.ErrorBody"}}
                }
            }
        },
        "/api/status/refresh": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "description": "读取设备状态并广播给所有订阅者",
                "produces": ["application/json"],
                "tags": ["状态"],
                "summary": "强制刷新状态",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/amp.Status"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/api.ErrorBody"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/api.ErrorBody"}}
                }
            }
        },
        "/api/actions": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["指令"],
                "summary": "可用指令列表",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}}}
                }
            },
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "description": "执行一个 action（volume_up、select_input_rca 等），返回执行后的状态",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["指令"],
                "summary": "执行指令",
                "parameters": [
                    {"description": "指令", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.ActionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/amp.Status"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorBody"}},
                    "501": {"description": "Not Implemented", "schema": {"$ref": "#/definitions/api.ErrorBody"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/api.ErrorBody"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/api.ErrorBody"}}
                }
            }
        },
        "/api/journal": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["日志"],
                "summary": "最近的指令日志",
                "parameters": [
                    {"type": "integer", "description": "条数(默认50，最大500)", "name": "limit", "in": "query"},
                    {"type": "string", "description": "按动作过滤", "name": "action", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.ErrorBody"}}
                }
            }
        },
        "/api/snapshots/latest": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["状态"],
                "summary": "最近持久化的状态快照",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorBody"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.ErrorBody"}}
                }
            }
        },
        "/ws": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "description": "连接后立即推送当前状态；上行 {\"action\":\"...\"}；错误以 {\"error\",\"code\"} 仅回给发起方",
                "tags": ["状态"],
                "summary": "状态中继 WebSocket",
                "responses": {}
            }
        }
    },
    "definitions": {
        "amp.Status": {
            "type": "object",
            "properties": {
                "main_volume": {"type": "integer"},
                "input": {"type": "integer"},
                "standby": {"type": "boolean"},
                "input_1_effect": {"type": "integer"},
                "input_2_effect": {"type": "integer"},
                "input_6_effect": {"type": "integer"}
            }
        },
        "api.ActionRequest": {
            "type": "object",
            "required": ["action"],
            "properties": {"action": {"type": "string"}}
        },
        "api.ErrorBody": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "error": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "X-API-Key", "in": "header"}
    }
}`

// SwaggerInfo 可在运行时覆盖 Host/BasePath
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Amp Server API",
	Description:      "串口功放控制与状态中继服务",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
