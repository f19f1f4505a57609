// Package health — минимальный liveness endpoint.
//
// Любой GET отвечает 200, text/plain, телом OK. Сервер работает в
// отдельной горутине и не зависит от хранилища и задач.
package health
