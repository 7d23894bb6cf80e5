// Package weaver — адаптер AWS SimSpace Weaver.
//
// Client оборачивает simspaceweaver.Client и отдаёт доменные типы:
//   - DescribeSimulation — статус симуляции и первых часов
//   - StartSimulation    — запуск симуляции из схемы или snapshot
//   - StartApp           — запуск app; ConflictException → domain.AlreadyStarted
//   - DescribeApp        — статус app
//   - StartClock         — запуск часов
//   - CreateSnapshot     — экспорт snapshot в S3
//
// Остальные ошибки сервиса оборачиваются и возвращаются вызывающему.
package weaver
