package handlers

import (
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
)

func corsHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,Authorization",
		"Access-Control-Allow-Methods": "GET,POST,OPTIONS",
		"Content-Type":                 "application/json",
	}
}

func jsonResponse(headers map[string]string, statusCode int, payload interface{}) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(payload)
	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       string(body),
	}, nil
}

func errorResponse(headers map[string]string, statusCode int, message string) (events.APIGatewayProxyResponse, error) {
	return jsonResponse(headers, statusCode, map[string]string{"error": message})
}
