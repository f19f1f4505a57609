package executor

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// ArtifactDirName — каталог снимков внутри корня артефактов.
const ArtifactDirName = "browser_agent_screenshots"

// MaterializeScreenshots копирует снимки в каталог задачи.
//
// Существующий файл копируется в dir/<taskID>_<basename> с сохранением
// прав и времени модификации. Отсутствующий файл или ошибка копирования
// оставляют исходный путь. Результат всегда той же длины, что и paths.
func MaterializeScreenshots(dir, taskID string, paths []string, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.Default()
	}

	out := make([]string, 0, len(paths))
	for _, src := range paths {
		if _, err := os.Stat(src); err != nil {
			logger.Debug("screenshot missing, keeping original path", "path", src)
			out = append(out, src)
			continue
		}

		dst := filepath.Join(dir, fmt.Sprintf("%s_%s", taskID, filepath.Base(src)))
		if err := copyFile(src, dst); err != nil {
			logger.Warn("screenshot copy failed", "path", src, "error", err)
			out = append(out, src)
			continue
		}
		out = append(out, dst)
	}
	return out
}

// copyFile копирует содержимое, права и mtime.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: not a regular file", src)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	if err = out.Chmod(info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
