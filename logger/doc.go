// Package logger provides structured logging for the Keycloak adapter,
// built on zerolog. Components obtain a tagged logger via WithComponent and
// emit key-value fields alongside each message.
package logger
