// Package controller доводит симуляцию SimSpace Weaver до snapshot.
//
// Driver проходит стадии по порядку:
//   - Симуляция STARTED
//   - Запуск app (ответ-конфликт = app уже запущен)
//   - App STARTED
//   - Запуск часов, если они ещё не STARTED
//   - CreateSnapshot в заданный S3 bucket
//
// Как ждать готовности стадии, определяет domain.WaitPolicy:
// poll опрашивает статус с задержкой, once проверяет один раз и
// возвращает Result.NotReady.
//
//	d := controller.New(controller.Config{
//	    API:    weaverClient,
//	    Domain: "MyViewDomain",
//	    App:    "SampleApp",
//	    Snapshot: domain.SnapshotPolicy{
//	        Destination: domain.Destination{BucketName: bucket},
//	    },
//	})
//
//	res, err := d.Run(ctx, "MySimulation")
package controller
