package audio

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"sort"
	"strconv"
	"strings"

	log "github.com/schollz/logger"
)

// Aubio runs the aubio command line tool at Path.
type Aubio struct {
	Path string
}

const (
	aubioWinSize = 1024
	aubioHopSize = aubioWinSize / 2
)

var (
	bpmRe        = regexp.MustCompile(`([0-9]+(\.[0-9]+)?)\s*bpm`)
	unknownBPMRe = regexp.MustCompile(`^unknown\s+bpm$`)
)

// Tempo runs "aubio tempo" over a WAV file at its native rate and returns
// the overall BPM.
func (a Aubio) Tempo(ctx context.Context, wavPath string) (float64, error) {
	bin := a.Path
	if bin == "" {
		bin = "aubio"
	}
	cmd := exec.CommandContext(ctx, bin, "tempo",
		"-B", strconv.Itoa(aubioWinSize),
		"-H", strconv.Itoa(aubioHopSize),
		"-i", wavPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return 0, fmt.Errorf("aubio tempo failed: %w: %s", err, msg)
		}
		return 0, fmt.Errorf("aubio tempo failed: %w", err)
	}
	bpm, err := ParseAubioTempo(string(out))
	if err != nil {
		return 0, err
	}
	log.Debugf("aubio tempo %s: %.2f bpm", wavPath, bpm)
	return bpm, nil
}

// ParseAubioTempo extracts a tempo from aubio output. A "<n> bpm" line wins;
// otherwise the output is read as one beat timestamp per line and the tempo
// is derived from the median inter-beat interval. "unknown bpm", or fewer
// than two beats, means no tempo was found and gives 0. Output with nothing
// recognisable in it is an error.
func ParseAubioTempo(out string) (float64, error) {
	var bpms []float64
	var beats []float64
	recognised := false
	sc := bufio.NewScanner(strings.NewReader(strings.ToLower(out)))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if unknownBPMRe.MatchString(line) {
			recognised = true
			continue
		}
		if m := bpmRe.FindStringSubmatch(line); len(m) >= 2 {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				bpms = append(bpms, v)
			}
			continue
		}
		if v, err := strconv.ParseFloat(strings.Fields(line)[0], 64); err == nil {
			beats = append(beats, v)
			recognised = true
		}
	}
	if len(bpms) > 0 {
		return bpms[len(bpms)-1], nil
	}
	if !recognised {
		return 0, fmt.Errorf("no tempo in aubio output")
	}

	ioi := make([]float64, 0, len(beats))
	for i := 1; i < len(beats); i++ {
		if d := beats[i] - beats[i-1]; d > 0 {
			ioi = append(ioi, d)
		}
	}
	if len(ioi) == 0 {
		return 0, nil
	}
	sort.Float64s(ioi)
	med := ioi[len(ioi)/2]
	if len(ioi)%2 == 0 {
		med = (ioi[len(ioi)/2-1] + ioi[len(ioi)/2]) / 2
	}
	return 60 / med, nil
}
