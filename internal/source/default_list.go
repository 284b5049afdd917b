package source

// defaultList is the built-in track list, used when no list is configured.
// Same format as user lists: base URL first, then relative track paths.
const defaultList = `https://lofigirl.com/wp-content/uploads/
2023/06/Above-The-Clouds.mp3
2023/06/Bucket-Of-Fish.mp3
2023/07/Autumn-Rain.mp3
2023/08/Lazy-Sunday.mp3
2023/09/Night-Drive.mp3
2023/10/Quiet-Snowfall.mp3
2024/01/Morning-Coffee.mp3
2024/02/Paper-Boats.mp3
2024/03/Window-Seat.mp3
2024/04/Slow-Tides.mp3
2024/05/Fading-Light.mp3
2024/06/Warm-Static.mp3
`
