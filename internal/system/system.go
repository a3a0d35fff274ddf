package system

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось получить лимит файлов: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось установить лимит файлов: %v", err)
	} else {
		fmt.Printf("[*] Системный лимит открытых файлов увеличен до %d\n", rLimit.Cur)
	}
}

// RecommendedWorkers sizes the variant-generation pool by physical cores and
// available memory. Каждый воркер держит в памяти RGBA-кадр обложки (~100МБ
// при 2400px), поэтому ограничиваем пул и по памяти тоже.
func RecommendedWorkers(perWorkerBytes uint64) int {
	workers := runtime.NumCPU()
	if counts, err := cpu.Counts(false); err == nil && counts > 0 {
		workers = counts
	}

	if perWorkerBytes > 0 {
		if vm, err := mem.VirtualMemory(); err == nil && vm.Available > 0 {
			byMem := int(vm.Available / perWorkerBytes)
			if byMem < 1 {
				byMem = 1
			}
			if byMem < workers {
				workers = byMem
			}
		}
	}

	if workers < 1 {
		workers = 1
	}
	return workers
}

// FindFFmpeg reports whether ffmpeg is reachable on PATH.
func FindFFmpeg() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg не найден в PATH: %w", err)
	}
	return nil
}

// CheckFilterSupport reports whether the installed ffmpeg carries a filter
// (drawtext is absent in some minimal builds).
func CheckFilterSupport(name string) bool {
	cmd := exec.Command("ffmpeg", "-filters")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), name)
}

// GetBestH264Encoder picks a hardware encoder when one is available.
func GetBestH264Encoder() (string, string) {
	encoders := []struct {
		name string
		args string
	}{
		{"h264_videotoolbox", ""},
		{"h264_nvenc", ""},
	}

	for _, enc := range encoders {
		cmd := exec.Command("ffmpeg", "-encoders")
		out, err := cmd.CombinedOutput()
		if err == nil && strings.Contains(string(out), enc.name) {
			return enc.name, enc.args
		}
	}

	return "libx264", ""
}

// FindLatestPDF ищет самый свежий PDF-файл в указанной директории.
func FindLatestPDF(dir string) (string, error) {
	return findLatest(dir, []string{".pdf"})
}

// FindLatestImage ищет самое свежее изображение в указанной директории.
func FindLatestImage(dir string) (string, error) {
	return findLatest(dir, []string{".jpg", ".jpeg", ".png", ".webp"})
}

func findLatest(dir string, extensions []string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		matched := false
		for _, ext := range extensions {
			if strings.HasSuffix(strings.ToLower(f.Name()), ext) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("в папке %s не найдено подходящих файлов", dir)
	}

	return latestFile, nil
}
