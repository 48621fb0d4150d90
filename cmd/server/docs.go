// Package main ReelForge API
//
//	@title			ReelForge API
//	@version		1.0
//	@description	Scene generation quality gate and render timeline composer.
//
//	@BasePath		/api/v1
//
//	@tag.name			Project
//	@tag.description	Script submission, scene review, composition and rendering
package main
