// Package domain содержит модели simsnap.
//
// Симуляцией, её apps и часами владеет SimSpace Weaver: здесь только
// наблюдаемые снимки их статусов, политика ожидания стадий и Run —
// журнал одного прохода драйвера.
package domain
