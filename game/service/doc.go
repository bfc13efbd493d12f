// Package service provides the administrative layer of the trivia server.
//
// GameService is used by the REST API and, through it, by the MCP tools. It
// creates, inspects and deletes rooms, lists rule presets and question
// categories, and reports server statistics. Gameplay itself never goes
// through this package: clients talk to rooms over the session protocol.
//
// Usage:
//
//	rooms := registry.New(configMgr, questionMgr, logger)
//	svc := service.NewGameService(rooms, configMgr, questionMgr, srv)
//
//	info, err := svc.CreateRoom(ctx, "Trivia1", "blitz")
package service
